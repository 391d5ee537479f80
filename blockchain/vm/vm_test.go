package vm

import "testing"

func TestStatelessArithmeticAndReturn(t *testing.T) {
	script := NewScript(Const(2), Const(3), Add(), Return())
	res, err := ExecuteStateless(script, nil, nil, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReturnValue != 5 {
		t.Fatalf("expected 5, got %d", res.ReturnValue)
	}
}

func TestAssertFailureHaltsWithoutSideEffects(t *testing.T) {
	script := NewScript(Const(0), Assert())
	_, err := ExecuteStateless(script, nil, nil, 1000)
	if err == nil {
		t.Fatal("expected AssertionFailed")
	}
}

func TestOutOfGasHalts(t *testing.T) {
	script := NewScript(Const(1), Const(2), Add(), Add(), Return())
	_, err := ExecuteStateless(script, nil, nil, 1)
	if err == nil {
		t.Fatal("expected OutOfGas with a 1-unit budget")
	}
}

func TestDeterministicGasAndResult(t *testing.T) {
	script := NewScript(Const(10), Const(4), Sub(), Return())
	r1, err1 := ExecuteStateless(script, nil, nil, 1000)
	r2, err2 := ExecuteStateless(script, nil, nil, 1000)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if r1 != r2 {
		t.Fatalf("execution must be deterministic: %+v != %+v", r1, r2)
	}
	if r1.ReturnValue != 6 {
		t.Fatalf("expected 6, got %d", r1.ReturnValue)
	}
}

func TestFrameStackBounded(t *testing.T) {
	rt := NewRuntime(NewStatelessContext(), NewGasBox(1_000_000))
	script := NewScript(Return())
	var err error
	for i := 0; i < 1025; i++ {
		if err = rt.StartFrame(script, nil, nil); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("expected StackOverflow once frameStackMaxSize is exceeded")
	}
}
