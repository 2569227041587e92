package core

// account_contract.go – the native account/naming contract (§4.4).
//
// Grounded on the prior account_and_balance_operations.go naming
// conventions (a thin Map-backed lookup contract) generalized to a
// bidirectional name<->address registry.

import (
	"fmt"
)

// nameMinLen/nameMaxLen bound Register's name length (§4.4).
const (
	nameMinLen = 4
	nameMaxLen = 15
)

// AccountContract implements Register/LookUpName/LookUpAddress.
type AccountContract struct {
	BaseContract
}

// NewAccountContract returns the account/naming contract.
func NewAccountContract() *AccountContract {
	return &AccountContract{
		BaseContract: NewBaseContract("account", map[string]uint64{
			"Register":       25,
			"LookUpName":     0,
			"LookUpAddress":  0,
		}),
	}
}

func (c *AccountContract) Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error) {
	switch method {
	case "Register":
		return c.register(rt, args)
	case "LookUpName":
		return c.lookUpName(rt, args)
	case "LookUpAddress":
		return c.lookUpAddress(rt, args)
	default:
		return VMObject{}, fmt.Errorf("account: unknown method %q", method)
	}
}

func (c *AccountContract) byName(cs *ChangeSet) *Map    { return NewMap(cs, "account:byname") }
func (c *AccountContract) byAddress(cs *ChangeSet) *Map { return NewMap(cs, "account:byaddr") }

func validName(name string) bool {
	if len(name) < nameMinLen || len(name) > nameMaxLen {
		return false
	}
	for _, r := range name {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// register(address, name): name must be lowercase ASCII, 4-15 chars, and
// not already taken; records both directions of the map and emits
// AddressRegister.
func (c *AccountContract) register(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 2 {
		return VMObject{}, fmt.Errorf("account: Register wants 2 args")
	}
	addr, name := args[0], args[1]
	if addr.Type != VTAddress || name.Type != VTString {
		return VMObject{}, fmt.Errorf("account: Register type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, addr.Addr), "address did not witness Register"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(validName(name.Str), "name must be lowercase ASCII, 4-15 characters"); err != nil {
		return VMObject{}, err
	}
	if _, taken := c.byName(rt.ChangeSet()).Get([]byte(name.Str)); taken {
		return VMObject{}, fmt.Errorf("account: name %q already registered", name.Str)
	}
	if _, has := c.byAddress(rt.ChangeSet()).Get(addr.Addr.Bytes()); has {
		return VMObject{}, fmt.Errorf("account: address already registered a name")
	}
	c.byName(rt.ChangeSet()).Set([]byte(name.Str), addr.Addr.Bytes())
	c.byAddress(rt.ChangeSet()).Set(addr.Addr.Bytes(), []byte(name.Str))
	rt.Notify(EventAddressRegister, addr.Addr, VMString(name.Str))
	return VMBool(true), nil
}

// lookUpName(name): read-only, returns the address registered to name.
func (c *AccountContract) lookUpName(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTString {
		return VMObject{}, fmt.Errorf("account: LookUpName wants 1 string arg")
	}
	raw, ok := c.byName(rt.ChangeSet()).Get([]byte(args[0].Str))
	if !ok {
		return VMNil(), nil
	}
	addr, err := AddressFromBytes(raw)
	if err != nil {
		return VMObject{}, err
	}
	return VMAddress(addr), nil
}

// lookUpAddress(address): read-only, returns the name registered to address.
func (c *AccountContract) lookUpAddress(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTAddress {
		return VMObject{}, fmt.Errorf("account: LookUpAddress wants 1 address arg")
	}
	raw, ok := c.byAddress(rt.ChangeSet()).Get(args[0].Addr.Bytes())
	if !ok {
		return VMNil(), nil
	}
	return VMString(string(raw)), nil
}
