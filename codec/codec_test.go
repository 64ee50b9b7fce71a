package codec

import "testing"

type sampleCommand struct {
	OrderID int
	Name    string
}

type sampleModel struct {
	Orders []sampleCommand
}

func TestBinaryRoundTrip(t *testing.T) {
	c := NewBinary()
	cmd := sampleCommand{OrderID: 1, Name: "A"}

	data, err := c.EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}

	var decoded sampleCommand
	if err := c.DecodeCommand(data, &decoded); err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if decoded != cmd {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, cmd)
	}

	model := sampleModel{Orders: []sampleCommand{cmd}}
	modelData, err := c.EncodeModel(model)
	if err != nil {
		t.Fatalf("EncodeModel: %v", err)
	}
	var decodedModel sampleModel
	if err := c.DecodeModel(modelData, &decodedModel); err != nil {
		t.Fatalf("DecodeModel: %v", err)
	}
	if len(decodedModel.Orders) != 1 || decodedModel.Orders[0] != cmd {
		t.Fatalf("model round trip mismatch: %+v", decodedModel)
	}
}

func TestJSONEncodeCommandRejectsNonObject(t *testing.T) {
	c := NewJSON(false)
	if _, err := c.EncodeCommand(42); err == nil {
		t.Fatal("expected error encoding a non-object command payload")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c := NewJSON(false)
	cmd := sampleCommand{OrderID: 2, Name: "B"}

	data, err := c.EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}
	if data[0] != '{' {
		t.Fatalf("expected JSON object payload, first byte was %q", data[0])
	}

	var decoded sampleCommand
	if err := c.DecodeCommand(data, &decoded); err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if decoded != cmd {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, cmd)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	composed := "é" // "e" + combining acute accent
	precomposed := "é"
	if NormalizeIdentifier(composed) != NormalizeIdentifier(precomposed) {
		t.Fatal("expected NFC-normalized identifiers to collide")
	}
}
