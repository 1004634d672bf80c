package engine

import "testing"

func TestFillModelValidatesProbabilities(t *testing.T) {
	if _, err := NewFillModel(1.5, 0, 0, 1); err == nil {
		t.Errorf("Expected error for probability above 1")
	}
	if _, err := NewFillModel(0, -0.1, 0, 1); err == nil {
		t.Errorf("Expected error for negative probability")
	}
	if _, err := NewFillModel(0.5, 0.5, 0.5, 1); err != nil {
		t.Errorf("Expected valid model, got: %v", err)
	}
}

func TestFillModelDegenerateProbabilities(t *testing.T) {
	fm, _ := NewFillModel(1, 0, 1, 1)
	for i := 0; i < 10; i++ {
		if !fm.IsLimitFilled() {
			t.Fatalf("Expected prob 1 to always fill")
		}
		if fm.IsStopFilled() {
			t.Fatalf("Expected prob 0 to never fill")
		}
		if !fm.IsSlipped() {
			t.Fatalf("Expected prob 1 to always slip")
		}
	}
}

func TestFillModelSeededReplay(t *testing.T) {
	first, _ := NewFillModel(0.5, 0.5, 0.5, 1234)
	second, _ := NewFillModel(0.5, 0.5, 0.5, 1234)

	for i := 0; i < 100; i++ {
		if first.IsLimitFilled() != second.IsLimitFilled() {
			t.Fatalf("Expected identical draws for identical seeds at step %d", i)
		}
	}
}
