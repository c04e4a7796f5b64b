package model

// Target is a single scan destination: an IP address or hostname plus
// optional resolved metadata. Targets are immutable once enumerated;
// the enumerator creates them and no later component modifies them.
type Target struct {
	// Address is the IP address or hostname to probe.
	Address string

	// Hostname is the original hostname when Address was resolved from
	// one. Empty when the target was given as a literal IP.
	Hostname string

	// ASN is the autonomous system number, if resolved. Zero means unknown.
	ASN int

	// Org is the owning organization, if resolved.
	Org string
}

// NewTarget creates a Target for a literal address with no metadata.
func NewTarget(address string) Target {
	return Target{Address: address}
}

// String returns the probe address for logging.
func (t Target) String() string {
	return t.Address
}
