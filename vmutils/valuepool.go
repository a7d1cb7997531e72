package vmutils

import (
	"errors"
	"strings"

	"github.com/lualocal/lualocal/vm"
)

// A ValuePool stores a Value and hands out clones of it
// with a Close method to free both the original and cloned values.
type ValuePool struct {
	value  *vm.Value
	clones []*vm.Value
}

func NewValuePool(value *vm.Value) *ValuePool {
	return &ValuePool{
		value:  value,
		clones: make([]*vm.Value, 0),
	}
}

// Value creates a clone of the stored value
func (vp *ValuePool) Value() *vm.Value {
	clone := vp.value.Clone()
	vp.clones = append(vp.clones, clone)
	return clone
}

// Close frees the original value and all cloned values
func (vp *ValuePool) Close() error {
	errs := make([]string, 0)
	for _, clone := range vp.clones {
		err := clone.Close()
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	vp.clones = nil

	if vp.value != nil {
		err := vp.value.Close()
		if err != nil {
			errs = append(errs, err.Error())
		}
		vp.value = nil
	}

	if len(errs) > 0 {
		return errors.New("multiple errors occurred while closing ValuePool: " + strings.Join(errs, "; "))
	}
	return nil
}
