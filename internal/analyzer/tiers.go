package analyzer

// Tier identifies which model tier serves an attempt. The pro tier is
// higher fidelity; flash is lighter and cheaper. Within one invocation
// a downgrade from pro to flash is permanent.
type Tier string

const (
	TierPro   Tier = "pro"
	TierFlash Tier = "flash"
)

// initialTier selects the starting tier for a request. Live sampling goes
// straight to flash to keep the high-frequency path cheap.
func initialTier(live bool) Tier {
	if live {
		return TierFlash
	}
	return TierPro
}
