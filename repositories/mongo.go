package repositories

import "go.mongodb.org/mongo-driver/mongo"

// NewMongoRepositories wires every Mongo-backed repository against db.
func NewMongoRepositories(client *mongo.Client, db *mongo.Database) *Repositories {
	return &Repositories{
		Tx:          NewTransactor(client),
		Accounts:    NewAccountRepository(db),
		Tree:        NewTreeRepository(db),
		Volumes:     NewVolumeRepository(db),
		Plan:        NewPlanRepository(db),
		Commissions: NewCommissionRepository(db),
		Snapshots:   NewSnapshotRepository(db),
		Wallets:     NewWalletRepository(db),
		Bonuses:     NewBonusRepository(db),
	}
}
