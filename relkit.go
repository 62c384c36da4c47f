// Package relkit maps typed record definitions to relational metadata,
// parameterized CRUD statements, and per-verb request handlers.
//
// A record is a plain Go struct whose exported fields describe the columns of
// one table or view. Each CRUD verb is opted into independently by declaring a
// capability marker on the record type, either by implementing the marker
// method directly or by embedding one of the provided marker sets:
//
//	type User struct {
//	    relkit.CRUD
//
//	    ID     int    `rel:"id,pk,auto"`
//	    Email  string `rel:"email"`
//	    Active bool   `rel:"active"`
//	}
//
// Registering the type derives its relation descriptor once, resolves its
// capability set, and produces one handler per supported verb:
//
//	reg := relkit.NewRegistry(drv)
//	users, err := relkit.Register[User](reg)
package relkit

// Capability is a bit set of the CRUD verbs a record type supports.
// It is resolved once at registration time and never changes afterwards.
type Capability uint8

const (
	// CapabilityCreate allows new records to be inserted.
	CapabilityCreate Capability = 1 << iota
	// CapabilityRead allows point lookups by primary key.
	CapabilityRead
	// CapabilityUpdate allows partial updates keyed by primary key.
	CapabilityUpdate
	// CapabilityDelete allows deletes keyed by primary key.
	CapabilityDelete
	// CapabilityList allows filtered, paginated listing.
	CapabilityList
)

// Has reports whether every capability in v is present in c.
func (c Capability) Has(v Capability) bool {
	return c&v == v
}

// String returns a comma-separated list of verb names.
func (c Capability) String() string {
	names := make([]byte, 0, 32)
	for _, v := range []struct {
		c Capability
		n string
	}{
		{CapabilityCreate, "create"},
		{CapabilityRead, "read"},
		{CapabilityUpdate, "update"},
		{CapabilityDelete, "delete"},
		{CapabilityList, "list"},
	} {
		if c.Has(v.c) {
			if len(names) > 0 {
				names = append(names, ',')
			}
			names = append(names, v.n...)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return string(names)
}

// Creatable marks a record type as supporting Create.
type Creatable interface {
	CanCreate()
}

// Readable marks a record type as supporting Read.
type Readable interface {
	CanRead()
}

// Updatable marks a record type as supporting Update.
type Updatable interface {
	CanUpdate()
}

// Deletable marks a record type as supporting Delete.
type Deletable interface {
	CanDelete()
}

// Listable marks a record type as supporting List.
type Listable interface {
	CanList()
}

// CRUD is an embeddable marker set declaring all five capabilities.
// It carries no fields and does not map to any column.
type CRUD struct{}

func (CRUD) CanCreate() {}
func (CRUD) CanRead()   {}
func (CRUD) CanUpdate() {}
func (CRUD) CanDelete() {}
func (CRUD) CanList()   {}

// ReadOnly is an embeddable marker set for view-backed record types.
// It declares Read and List only.
type ReadOnly struct{}

func (ReadOnly) CanRead() {}
func (ReadOnly) CanList() {}

// Resolve returns the capability set declared by the record type.
// It is a pure function of the type's marker methods.
func Resolve(rec any) Capability {
	var c Capability
	if _, ok := rec.(Creatable); ok {
		c |= CapabilityCreate
	}
	if _, ok := rec.(Readable); ok {
		c |= CapabilityRead
	}
	if _, ok := rec.(Updatable); ok {
		c |= CapabilityUpdate
	}
	if _, ok := rec.(Deletable); ok {
		c |= CapabilityDelete
	}
	if _, ok := rec.(Listable); ok {
		c |= CapabilityList
	}
	return c
}
