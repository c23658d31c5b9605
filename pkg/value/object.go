package value

// Property attribute flags; the prologue emitter picks a combination
// per binding kind when declaring eval/global bindings.
const (
	PropWritable     = 1 << 0
	PropEnumerable   = 1 << 1
	PropConfigurable = 1 << 2
)

// Property is one entry of an Object's property set.
type Property struct {
	Value Value
	Flags int
}

// Object is the insertion-ordered internal object used as a compiled
// function's variable map. It is not part of the runtime object model;
// it only needs property set/get/has/del and enumeration in insertion
// order, the operations the compiler performs when a function may have
// slow-path (environment-record) variable access.
type Object struct {
	order []string
	props map[string]*Property
}

// NewObject creates an empty variable-map object.
func NewObject() *Object {
	return &Object{props: make(map[string]*Property)}
}

// Set defines or overwrites a property, preserving its original insertion
// position if it already existed.
func (o *Object) Set(name string, v Value, flags int) {
	if p, ok := o.props[name]; ok {
		p.Value = v
		p.Flags = flags
		return
	}
	o.order = append(o.order, name)
	o.props[name] = &Property{Value: v, Flags: flags}
}

// Get returns the property value and whether it exists.
func (o *Object) Get(name string) (Value, bool) {
	p, ok := o.props[name]
	if !ok {
		return Value{}, false
	}
	return p.Value, true
}

// Has reports whether name is defined.
func (o *Object) Has(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Delete removes a property if its Configurable flag is set, returning
// whether the property is gone (not present) afterwards.
func (o *Object) Delete(name string) bool {
	p, ok := o.props[name]
	if !ok {
		return true
	}
	if p.Flags&PropConfigurable == 0 {
		return false
	}
	delete(o.props, name)
	for i, n := range o.order {
		if n == name {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys enumerates property names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Len reports the number of properties currently defined.
func (o *Object) Len() int {
	return len(o.order)
}
