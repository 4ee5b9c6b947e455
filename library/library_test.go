package library

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Instruments) != 2 {
		t.Fatalf("instruments = %d", len(c.Instruments))
	}
	reverb, ok := c.Find(TypeEffect, "reverb")
	if !ok || !reverb.Playable() {
		t.Fatalf("reverb = %+v, %v", reverb, ok)
	}
	phaser, ok := c.Find(TypeEffect, "phaser")
	if !ok || phaser.Playable() {
		t.Fatalf("phaser should be listed but not playable: %+v", phaser)
	}
	if _, ok := c.Find(TypeGenerator, "synth"); !ok {
		t.Fatal("generator alias should find instruments")
	}
	an, _ := c.Find(TypeUtility, "analyser")
	if an.Playable() {
		t.Fatal("utilities are not playable")
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		index   int
	}{
		{`{"type":"instrument","id":"synth","name":"Synth"}`, false, -1},
		{`{"type":"effect","id":"reverb","name":"Reverb","index":2}`, false, 2},
		{`{"type":"sample","id":"kick"}`, true, -1},
		{`{"type":"effect"}`, true, -1},
		{`not json`, true, -1},
	}
	for _, tt := range tests {
		p, err := ParsePayload(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePayload(%s) err = %v", tt.in, err)
			continue
		}
		if err != nil {
			continue
		}
		if tt.index < 0 && p.Index != nil {
			t.Errorf("unexpected index %d", *p.Index)
		}
		if tt.index >= 0 && (p.Index == nil || *p.Index != tt.index) {
			t.Errorf("index = %v, want %d", p.Index, tt.index)
		}
	}
}

func TestPayloadEncode(t *testing.T) {
	i := 1
	in := Payload{Item: Item{ID: "tremolo", Name: "Tremolo", Type: TypeEffect}, Index: &i}
	out, err := ParsePayload(in.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != "tremolo" || out.Type != TypeEffect || *out.Index != 1 {
		t.Fatalf("got %+v", out)
	}
}
