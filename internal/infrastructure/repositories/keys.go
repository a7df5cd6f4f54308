package repositories

// Logical cache keys. The Redis adapter adds the configured namespace
// (catalog by default), e.g. catalog:names:sorted.
const (
	namesKey            = "names:sorted"
	searchKeyPrefix     = "search:"
	detailKeyPrefix     = "detail:"
	speciesKeyPrefix    = "species:"
	chainKeyPrefix      = "evolutionchain:"
	encountersKeyPrefix = "encounters:"
	abilitiesKeyPrefix  = "abilities:"
)

func searchKey(normalizedQuery string) string { return searchKeyPrefix + normalizedQuery }
func detailKey(name string) string            { return detailKeyPrefix + name }
