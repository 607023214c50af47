package reference

// Author represents a paper author as listed by PubMed ("Smith JA").
// Collective authors ("GBD 2019 Collaborators") only have Last set.
type Author struct {
	First string `json:"first,omitempty"` // Initials or given name(s)
	Last  string `json:"last"`            // Family name or collective name
}

// String returns the author in PubMed display order, "Last First".
func (a Author) String() string {
	if a.First == "" {
		return a.Last
	}
	return a.Last + " " + a.First
}
