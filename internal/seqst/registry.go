package seqst

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Outcome is the result of adding a sequence to a Registry.
type Outcome int

const (
	// Added means the sequence was valid, new, and stored.
	Added Outcome = iota

	// Invalid means the sequence failed amino acid validation.
	Invalid

	// Duplicate means an identical sequence is already stored.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Invalid:
		return "invalid"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// Provenance tags the source of a descriptor's structure references.
type Provenance string

const (
	// SourcePDB marks experimentally determined PDB entries.
	SourcePDB Provenance = "pdb"

	// SourceAlphaFold marks predicted models from the EBI AlphaFold database.
	SourceAlphaFold Provenance = "EBI-AF"
)

// Structures is one descriptor's structure evidence. All references in
// Refs share the one Source.
type Structures struct {
	// Source all references were found in
	Source Provenance

	// Refs are PDB entry codes, or model locator URLs for SourceAlphaFold
	Refs []string
}

// aaSeq matches a protein sequence of single-letter canonical (20) amino
// acids, with gap characters and an optional trailing stop allowed.
var aaSeq = regexp.MustCompile(`^[ACDEFGHIKLMNPQRSTWVY-]+\*?$`)

// Registry owns the descriptor to sequence mapping for one run. Writes
// are serialized so pipeline stages can share it across goroutines.
type Registry struct {
	mu sync.Mutex

	// descriptors in insertion order
	descriptors []string

	// descriptor to validated sequence
	seqs map[string]string

	// set of stored sequences, for duplicate rejection
	unique map[string]bool

	// descriptor to canonical accession numbers
	accessions map[string][]string

	// descriptor to structure evidence
	structures map[string]Structures
}

// NewRegistry returns an empty sequence registry.
func NewRegistry() *Registry {
	return &Registry{
		seqs:       map[string]string{},
		unique:     map[string]bool{},
		accessions: map[string][]string{},
		structures: map[string]Structures{},
	}
}

// AddSequence normalizes and validates seq and stores it under
// descriptor. An empty descriptor is named seq_<n> after the registry
// size, a taken one gets the smallest free _<n> suffix. Duplicate
// sequences are rejected before invalid ones are, so re-adding a stored
// sequence always reports Duplicate.
func (r *Registry) AddSequence(descriptor, seq string) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq = strings.ToUpper(strings.TrimSpace(seq))
	descriptor = strings.TrimSpace(descriptor)

	if r.unique[seq] {
		return Duplicate
	}
	if !aaSeq.MatchString(seq) {
		return Invalid
	}

	if descriptor == "" {
		descriptor = "seq_" + strconv.Itoa(len(r.descriptors)+1)
	}
	descriptor = r.freeDescriptor(descriptor)

	r.descriptors = append(r.descriptors, descriptor)
	r.seqs[descriptor] = seq
	r.unique[seq] = true
	return Added
}

// freeDescriptor probes for the smallest unused _<n> suffix on the
// descriptor's base name, starting at 2. A descriptor that already ends
// in _<n> collides into _<n+1>, never into _<n>_2.
func (r *Registry) freeDescriptor(descriptor string) string {
	if _, taken := r.seqs[descriptor]; !taken {
		return descriptor
	}

	base, n := splitSuffix(descriptor)
	if n < 2 {
		n = 2
	} else {
		n++
	}
	for {
		d := base + "_" + strconv.Itoa(n)
		if _, taken := r.seqs[d]; !taken {
			return d
		}
		n++
	}
}

// splitSuffix splits a trailing _<digits> suffix off a name. Names
// without one come back whole, with n == 0.
func splitSuffix(name string) (base string, n int) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name, 0
	}
	suffix := name[i+1:]
	if suffix == "" {
		return name, 0
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return name, 0
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return name, 0
	}
	return name[:i], n
}

// ResolveDescriptor maps a descriptor reported by a remote service back
// to the stored descriptor holding the same sequence. Suffix renames
// survive the round trip: any _<n> variant of the base name resolves, as
// long as the sequence content is identical. Returns "" when nothing
// matches.
func (r *Registry) ResolveDescriptor(descriptor, seq string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.resolve(descriptor, seq)
}

func (r *Registry) resolve(descriptor, seq string) string {
	descriptor = strings.TrimSpace(descriptor)
	seq = strings.ToUpper(strings.TrimSpace(seq))

	base, _ := splitSuffix(descriptor)
	variant := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `(_\d+)?$`)

	for _, d := range r.descriptors {
		if variant.MatchString(d) && r.seqs[d] == seq {
			return d
		}
	}
	return ""
}

// AddAccessions stores accessions under the descriptor after verifying
// the descriptor and sequence pair against the registry. Reports whether
// the pair resolved. An empty accession list verifies but stores nothing.
func (r *Registry) AddAccessions(descriptor, seq string, accessions []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := r.resolve(descriptor, seq)
	if resolved == "" {
		return false
	}
	r.setAccessions(resolved, accessions)
	return true
}

// SetAccessions stores accessions under a descriptor the caller already
// knows is canonical, replacing any prior list. An empty list is a no-op
// so prior evidence is never erased by a fruitless pass.
func (r *Registry) SetAccessions(descriptor string, accessions []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setAccessions(descriptor, accessions)
}

func (r *Registry) setAccessions(descriptor string, accessions []string) {
	if len(accessions) == 0 {
		return
	}
	r.accessions[descriptor] = appendUnique([]string{}, accessions...)
}

// AddStructures stores structure evidence under the descriptor after
// verifying the descriptor and sequence pair. Reports whether the pair
// resolved. Panics on an unknown provenance, that is a programming error
// rather than bad input. An empty reference list verifies but stores
// nothing.
func (r *Registry) AddStructures(descriptor, seq string, structures Structures) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := r.resolve(descriptor, seq)
	if resolved == "" {
		return false
	}
	r.setStructures(resolved, structures)
	return true
}

// SetStructures stores structure evidence under a canonical descriptor,
// replacing any prior set. Same panic and empty list rules as
// AddStructures.
func (r *Registry) SetStructures(descriptor string, structures Structures) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setStructures(descriptor, structures)
}

func (r *Registry) setStructures(descriptor string, structures Structures) {
	if structures.Source != SourcePDB && structures.Source != SourceAlphaFold {
		panic(fmt.Sprintf("unknown structure provenance %q, expected %q or %q",
			structures.Source, SourcePDB, SourceAlphaFold))
	}
	if len(structures.Refs) == 0 {
		return
	}
	r.structures[descriptor] = Structures{
		Source: structures.Source,
		Refs:   appendUnique([]string{}, structures.Refs...),
	}
}

// Descriptors returns the stored descriptors in insertion order.
func (r *Registry) Descriptors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.descriptors...)
}

// Seq returns the sequence stored under descriptor, "" if there is none.
func (r *Registry) Seq(descriptor string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.seqs[descriptor]
}

// HasSequence reports whether the normalized sequence is stored under
// any descriptor.
func (r *Registry) HasSequence(seq string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.unique[strings.ToUpper(strings.TrimSpace(seq))]
}

// Sequences returns the stored normalized sequences in insertion order.
func (r *Registry) Sequences() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seqs := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		seqs = append(seqs, r.seqs[d])
	}
	return seqs
}

// Accessions returns the accessions stored for descriptor.
func (r *Registry) Accessions(descriptor string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.accessions[descriptor]...)
}

// Structures returns the structure evidence stored for descriptor.
func (r *Registry) Structures(descriptor string) (Structures, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.structures[descriptor]
	if !ok {
		return Structures{}, false
	}
	return Structures{Source: s.Source, Refs: append([]string{}, s.Refs...)}, true
}

// Len returns the number of stored sequences.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.descriptors)
}

// FASTA returns every descriptor and sequence as FASTA records, without
// a trailing newline.
func (r *Registry) FASTA() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []string
	for _, d := range r.descriptors {
		records = append(records, ">"+d+"\n"+r.seqs[d])
	}
	return strings.Join(records, "\n")
}

// appendUnique appends each value not already in the list.
func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		seen := false
		for _, have := range list {
			if have == v {
				seen = true
				break
			}
		}
		if !seen {
			list = append(list, v)
		}
	}
	return list
}
