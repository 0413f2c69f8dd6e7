// Package models contains GORM persistence models. Domain types carry no ORM
// tags; each model here maps one table and converts to and from its domain
// type with ToDomain and a ...FromDomain constructor.
//
//   - base.go: BaseModel and AggregateModel (optimistic version)
//   - payout.go: investment dues, payout records and rejections
//   - investment.go: the investment catalog read model
//   - wallet.go: ledger wallet credits
package models
