package shared

// TipSetToken is the implementation-nonspecific identity for a ledger head.
// Authorization payloads anchor to it so key servers can bound their validity
// window without sharing a chain implementation with the client.
type TipSetToken []byte
