package versioning

// set at build time with -ldflags "-X github.com/Ethernal-Tech/deposit-relayer/versioning.Commit=..."
var (
	Commit    string
	Branch    string
	BuildTime string
)
