package values

import "testing"

func TestScalarRoundTrip(t *testing.T) {
	boolOrig := NewBoolean(true)
	if got, err := DeserializeBoolean(boolOrig.Serialize()); err != nil || got != boolOrig {
		t.Errorf("boolean round trip: got %v, err %v", got, err)
	}

	byteOrig := NewByte(-7)
	if got, err := DeserializeByte(byteOrig.Serialize()); err != nil || got != byteOrig {
		t.Errorf("byte round trip: got %v, err %v", got, err)
	}

	shortOrig := NewShort(-1234)
	if got, err := DeserializeShort(shortOrig.Serialize()); err != nil || got != shortOrig {
		t.Errorf("short round trip: got %v, err %v", got, err)
	}

	intOrig := NewInt(-123456)
	if got, err := DeserializeInt(intOrig.Serialize()); err != nil || got != intOrig {
		t.Errorf("int round trip: got %v, err %v", got, err)
	}

	longOrig := NewLong(-123456789012)
	if got, err := DeserializeLong(longOrig.Serialize()); err != nil || got != longOrig {
		t.Errorf("long round trip: got %v, err %v", got, err)
	}

	floatOrig := NewFloat(3.14)
	if got, err := DeserializeFloat(floatOrig.Serialize()); err != nil || got != floatOrig {
		t.Errorf("float round trip: got %v, err %v", got, err)
	}

	doubleOrig := NewDouble(2.71828182845904)
	if got, err := DeserializeDouble(doubleOrig.Serialize()); err != nil || got != doubleOrig {
		t.Errorf("double round trip: got %v, err %v", got, err)
	}

	stringOrig := NewString("cottontail")
	if got, err := DeserializeString(stringOrig.Serialize()); err != nil || got != stringOrig {
		t.Errorf("string round trip: got %v, err %v", got, err)
	}

	c32Orig := NewComplex32(complex(float32(1.5), float32(-2.5)))
	if got, err := DeserializeComplex32(c32Orig.Serialize()); err != nil || got != c32Orig {
		t.Errorf("complex32 round trip: got %v, err %v", got, err)
	}

	c64Orig := NewComplex64(complex(1.5, -2.5))
	if got, err := DeserializeComplex64(c64Orig.Serialize()); err != nil || got != c64Orig {
		t.Errorf("complex64 round trip: got %v, err %v", got, err)
	}
}

func TestScalarEqualsAcrossTypesIsFalse(t *testing.T) {
	if NewInt(5).Equals(NewLong(5)) {
		t.Error("IntValue(5) should not equal LongValue(5)")
	}
}

func TestDeserializeRejectsWrongLength(t *testing.T) {
	if _, err := DeserializeInt([]byte{1, 2, 3}); err == nil {
		t.Error("expected error decoding a 3-byte buffer as INT")
	}
	if _, err := DeserializeDouble([]byte{1, 2, 3}); err == nil {
		t.Error("expected error decoding a 3-byte buffer as DOUBLE")
	}
}

func TestStringSerializeLengthPrefixed(t *testing.T) {
	s := NewString("hi")
	buf := s.Serialize()
	if len(buf) != 4+2 {
		t.Fatalf("len(buf) = %d, want 6", len(buf))
	}
}
