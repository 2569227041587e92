package core

// event.go – the auditable event log Runtime accumulates per transaction.
//
// Ported from an untyped Log struct appended through AddLog(log *Log) on
// StateRW, but dropping its reflection-heavy payload marshaling (§9):
// chainforge instead keeps Event.Payload as a typed VMObject, giving every
// Event kind the same value type without per-kind reflection.

// EventKind enumerates the well-known event kinds a contract can Notify
// (§3). Two kinds are intercepted by Runtime.Notify itself (§4.2):
// GasEscrow and GasPayment. All other kinds are opaque to the runtime and
// only recorded.
type EventKind string

const (
	EventChainCreate     EventKind = "ChainCreate"
	EventTokenCreate     EventKind = "TokenCreate"
	EventTokenSend       EventKind = "TokenSend"
	EventTokenReceive    EventKind = "TokenReceive"
	EventTokenClaim      EventKind = "TokenClaim"
	EventTokenMint       EventKind = "TokenMint"
	EventTokenBurn       EventKind = "TokenBurn"
	EventTokenEscrow     EventKind = "TokenEscrow"
	EventTokenStake      EventKind = "TokenStake"
	EventTokenUnstake    EventKind = "TokenUnstake"
	EventAddressRegister EventKind = "AddressRegister"
	EventAddressAdd      EventKind = "AddressAdd"
	EventAddressRemove   EventKind = "AddressRemove"
	EventGasEscrow       EventKind = "GasEscrow"
	EventGasPayment      EventKind = "GasPayment"
	EventAuctionCreated  EventKind = "AuctionCreated"
	EventAuctionCancelled EventKind = "AuctionCancelled"
	EventAuctionFilled   EventKind = "AuctionFilled"
	EventMetadata        EventKind = "Metadata"
)

// Event is one append-only entry in a transaction's audit log.
type Event struct {
	Kind    EventKind
	Address Address
	Payload VMObject
}

// gasEscrowPayload and gasPaymentPayload are the struct shapes Notify
// expects for the two intercepted kinds, matching §4.4's literal wire
// shape: GasEscrow carries {amount: limit, price}; GasPayment carries
// {amount: usedGas*gasPrice (capped at the escrowed limit)}, the KCAL
// fuel actually burned, not the raw gas-unit count.
func gasEscrowPayload(limit, price uint64) VMObject {
	return VMStruct([]StructField{
		{Key: "amount", Value: VMInt(uint64ToBigInt(limit))},
		{Key: "price", Value: VMInt(uint64ToBigInt(price))},
	})
}

func gasPaymentPayload(fuelCost uint64) VMObject {
	return VMStruct([]StructField{
		{Key: "amount", Value: VMInt(uint64ToBigInt(fuelCost))},
	})
}

func structField(fields []StructField, key string) (VMObject, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return VMObject{}, false
}
