package blockchain

// InitialSubsidy is the coinbase reward paid at height 0, in novas.
const InitialSubsidy = 50_00000000

// SubsidyHalvingInterval is the number of blocks between successive
// subsidy halvings.
const SubsidyHalvingInterval = 210_000

// SubsidyAt computes the block subsidy at height: InitialSubsidy halved
// once per SubsidyHalvingInterval blocks, until it reaches zero. Supernova
// has no stake-based treasury split to account for.
func SubsidyAt(height uint64) uint64 {
	halvings := height / SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialSubsidy >> halvings
}
