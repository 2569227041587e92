package core

// gas_contract.go – the native gas-escrow contract (§4.2, §4.4).
//
// Grounded on the prior gas-metering half of virtual_machine.go
// (GasMeter tracked alongside Execute) generalised into a proper native
// contract: escrowing and settling gas is itself a contract invocation a
// transaction's script calls, not VM-internal bookkeeping, so it shows up
// in the event log like any other state change (§3: GasEscrow, GasPayment).

import (
	"fmt"
)

// GasContract implements AllowGas/SpendGas, the two calls a transaction's
// script is expected to bracket its real work with: AllowGas declares the
// gas budget up front, SpendGas settles what was actually used against the
// payer's KCAL fuel balance and credits the block producer.
type GasContract struct {
	BaseContract
	fuel func(cs *ChangeSet) *BalanceBook
}

// NewGasContract returns the gas contract, reading/writing the fuel token's
// balances through fuelBook (bound once the staking/fuel token's symbol is
// known, at genesis).
func NewGasContract(fuelBook func(cs *ChangeSet) *BalanceBook) *GasContract {
	return &GasContract{
		BaseContract: NewBaseContract("gas", map[string]uint64{
			"AllowGas": 0,
			"SpendGas": 0,
		}),
		fuel: fuelBook,
	}
}

func (c *GasContract) Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error) {
	switch method {
	case "AllowGas":
		return c.allowGas(rt, args)
	case "SpendGas":
		return c.spendGas(rt, args)
	default:
		return VMObject{}, fmt.Errorf("gas: unknown method %q", method)
	}
}

// allowGas(payer, gasPrice, gasLimit) requires payer's witness signature,
// emits GasEscrow, and is the first thing any fee-paying script calls.
func (c *GasContract) allowGas(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 3 {
		return VMObject{}, fmt.Errorf("gas: AllowGas wants 3 args")
	}
	payer, price, limit := args[0], args[1], args[2]
	if payer.Type != VTAddress || price.Type != VTInt || limit.Type != VTInt {
		return VMObject{}, fmt.Errorf("gas: AllowGas type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, payer.Addr), "payer did not witness AllowGas"); err != nil {
		return VMObject{}, err
	}
	rt.Notify(EventGasEscrow, payer.Addr, gasEscrowPayload(bigIntToUint64(limit.Int), bigIntToUint64(price.Int)))
	return VMBool(true), nil
}

// spendGas(payer) debits payer's fuel balance by usedGas*gasPrice (capped
// at maxGas) and credits the block producer, emitting GasPayment. Called
// once at the end of a script, after the real work is done, so usedGas
// reflects the whole transaction.
func (c *GasContract) spendGas(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 {
		return VMObject{}, fmt.Errorf("gas: SpendGas wants 1 arg")
	}
	payer := args[0]
	if payer.Type != VTAddress {
		return VMObject{}, fmt.Errorf("gas: SpendGas type mismatch")
	}
	used := rt.GasUsed
	if used > rt.MaxGas() {
		used = rt.MaxGas()
	}
	cost := used * rt.GasPrice()

	book := c.fuel(rt.ChangeSet())
	if err := book.Burn(payer.Addr, uint64ToBigInt(cost)); err != nil {
		return VMObject{}, fmt.Errorf("gas: %w", err)
	}
	book.Mint(rt.Producer, uint64ToBigInt(cost))

	rt.Notify(EventGasPayment, payer.Addr, gasPaymentPayload(cost))
	return VMInt(uint64ToBigInt(cost)), nil
}
