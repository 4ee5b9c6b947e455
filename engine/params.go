package engine

import "go-daw/audio"

func number(p audio.Params, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func sub(p audio.Params, key string) audio.Params {
	switch v := p[key].(type) {
	case audio.Params:
		return v
	case map[string]any:
		return audio.Params(v)
	}
	return nil
}

// merge writes src into dst, descending into nested maps.
func merge(dst, src audio.Params) {
	for k, v := range src {
		if s := sub(src, k); s != nil {
			d := sub(dst, k)
			if d == nil {
				d = audio.Params{}
				dst[k] = d
			}
			merge(d, s)
			continue
		}
		dst[k] = v
	}
}

func clone(p audio.Params) audio.Params {
	out := make(audio.Params, len(p))
	for k, v := range p {
		if s := sub(p, k); s != nil {
			out[k] = clone(s)
			continue
		}
		out[k] = v
	}
	return out
}
