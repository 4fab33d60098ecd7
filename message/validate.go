package message

import "fmt"

// Validation helpers shared by the payload types. Geometry fields use fixed
// lengths: vectors are xyz, quaternions are xyzw, inertia tensors are row-major 3x3.

func checkVec3(name string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 3 {
		return fmt.Errorf("%s must have 3 elements, got %d", name, len(v))
	}
	return nil
}

func checkQuat(name string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 4 {
		return fmt.Errorf("%s must have 4 elements, got %d", name, len(v))
	}
	return nil
}

func checkTensor(name string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 9 {
		return fmt.Errorf("%s must have 9 elements, got %d", name, len(v))
	}
	return nil
}

func checkRange(name string, v, min, max float64) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be in [%g, %g], got %g", name, min, max, v)
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%s must be >= 0, got %g", name, v)
	}
	return nil
}

func checkRequired(name, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func zeroVec3() []float64 {
	return []float64{0, 0, 0}
}

func identityQuat() []float64 {
	return []float64{0, 0, 0, 1}
}

func identityTensor() []float64 {
	return []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
}
