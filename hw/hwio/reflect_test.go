package hwio

import "testing"

type test1 struct {
	Reg1   Reg32 `hwio:"offset=0x111,reset=0x23,rwmask=0x1,wcb"`
	Reg2   Reg32 `hwio:"offset=0x444,bank=1,rcb"`
	called bool
}

func (t *test1) WriteREG1(old, val uint32) {
	t.called = true
}

func (t *test1) ReadREG2(val uint32) uint32 {
	return val | 1
}

func TestReflect(t *testing.T) {
	ts := &test1{}

	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	t.Log(ts.Reg1, ts.Reg2)
	if ts.Reg1.Name != "Reg1" || ts.Reg2.Name != "Reg2" {
		t.Error("invalid names:", ts.Reg1, ts.Reg2)
	}

	if got := ts.Reg2.Read(0, 4, false); got != 1 {
		t.Error("invalid read:", got)
	}

	if got := ts.Reg1.Read(0, 4, false); got != 0x23 {
		t.Error("invalid read", got)
	}

	ts.Reg1.Write(0, 0, 4)
	if ts.Reg1.Value != 0x22 {
		t.Errorf("invalid value after rwmask: %x", ts.Reg1.Value)
	}
	if !ts.called {
		t.Error("callback not called")
	}
}

func TestParseBank(t *testing.T) {
	ts := &test1{}
	info, err := bankGetRegs(ts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x111 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}

	rptr, ok := info[0].regPtr.(*Reg32)
	if !ok {
		t.Errorf("invalid reg ptr type: %T", info[0].regPtr)
	} else if rptr != &ts.Reg1 {
		t.Errorf("invalid reg ptr")
	}

	info, err = bankGetRegs(ts, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x444 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}

	if _, err := bankGetRegs(*ts, 0); err == nil {
		t.Errorf("bankGetRegs should fail on non-pointer")
	}
}

func TestReadWriteOnly(t *testing.T) {
	type test2 struct {
		Reg1 Reg32 `hwio:"reset=0x23,readonly"`
		Reg2 Reg32 `hwio:"writeonly"`
	}

	ts := &test2{}
	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	ts.Reg1.Write(0, 0, 4) // this should be ignored
	if got := ts.Reg1.Read(0, 4, false); got != 0x23 {
		t.Error("invalid reg1 read:", got)
	}

	ts.Reg2.Write(0, 0x23, 4)
	if got := ts.Reg2.Read(0, 4, false); got != 0 {
		t.Error("invalid reg2 read:", got)
	}
	if got := ts.Reg2.Read(0, 4, true); got != 0x23 {
		t.Error("invalid reg2 peek:", got)
	}
}

func TestInitRegsErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"reset too big", &struct {
			R Reg32 `hwio:"reset=0x123456789"`
		}{}},
		{"rwmask too big", &struct {
			R Reg32 `hwio:"rwmask=0x100000000"`
		}{}},
		{"unknown option", &struct {
			R Reg32 `hwio:"foo"`
		}{}},
		{"missing callback", &struct {
			R Reg32 `hwio:"rcb"`
		}{}},
		{"mem not pow2", &struct {
			M Mem `hwio:"size=0x300"`
		}{}},
		{"device without size", &struct {
			D Device `hwio:"rcb"`
		}{}},
		{"readonly and writeonly", &struct {
			R Reg32 `hwio:"readonly,writeonly"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := InitRegs(tt.data); err == nil {
				t.Errorf("InitRegs should fail")
			}
		})
	}
}

type wrongSig struct {
	R Reg32 `hwio:"wcb"`
}

func (w *wrongSig) WriteR(val uint8) {}

func TestWrongCallbackSignature(t *testing.T) {
	if err := InitRegs(&wrongSig{}); err == nil {
		t.Fatal("InitRegs should fail with wrong callback signature")
	}
}
