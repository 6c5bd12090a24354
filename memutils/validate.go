package memutils

// Validatable is anything with an internal consistency check that DebugValidate can run, such
// as block metadata or a residency list
type Validatable interface {
	Validate() error
}
