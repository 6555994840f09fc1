package brokerclient

import "fmt"

// topicPartition identifies one partition of one topic, used as a map key
// for leader lookups.
type topicPartition struct {
	topic     string
	partition int32
}

// metadataSnapshot is a versioned view of cluster topology: the set of
// known broker ids, the controller's broker id, and the leader broker id
// for every (topic, partition) the last metadata fetch covered. Generation
// only ever increases across the BrokerConnector that produced it.
type metadataSnapshot struct {
	brokerIDs     map[int32]struct{}
	controllerID  int32
	hasController bool
	leaders       map[topicPartition]int32
	generation    uint64
}

func newMetadataSnapshot(gen uint64) *metadataSnapshot {
	return &metadataSnapshot{
		brokerIDs:  make(map[int32]struct{}),
		leaders:    make(map[topicPartition]int32),
		generation: gen,
	}
}

func (m *metadataSnapshot) leaderFor(topic string, partition int32) (int32, bool) {
	id, ok := m.leaders[topicPartition{topic, partition}]
	return id, ok
}

func (m *metadataSnapshot) hasBroker(id int32) bool {
	_, ok := m.brokerIDs[id]
	return ok
}

// MetadataMode selects how BrokerConnector.RequestMetadata resolves its
// result: always fetch fresh from an arbitrary broker, target one specific
// broker id, or reuse the cache as long as it is newer than a known
// generation.
type MetadataMode struct {
	kind       metadataModeKind
	brokerID   int32
	generation uint64
}

type metadataModeKind int

const (
	modeArbitraryBroker metadataModeKind = iota
	modeSpecificBroker
	modeCachedArbitrary
)

// ArbitraryBroker always performs (or coalesces onto) a fresh metadata fetch
// against any reachable broker.
func ArbitraryBroker() MetadataMode { return MetadataMode{kind: modeArbitraryBroker} }

// SpecificBroker fetches metadata from exactly the given broker id.
func SpecificBroker(id int32) MetadataMode {
	return MetadataMode{kind: modeSpecificBroker, brokerID: id}
}

// CachedArbitrary returns the cached snapshot if its generation is strictly
// greater than gen; otherwise it performs a fresh lookup, the same as
// ArbitraryBroker.
func CachedArbitrary(gen uint64) MetadataMode {
	return MetadataMode{kind: modeCachedArbitrary, generation: gen}
}

func (m MetadataMode) String() string {
	switch m.kind {
	case modeArbitraryBroker:
		return "arbitrary-broker"
	case modeSpecificBroker:
		return fmt.Sprintf("specific-broker(%d)", m.brokerID)
	case modeCachedArbitrary:
		return fmt.Sprintf("cached-arbitrary(>%d)", m.generation)
	default:
		return "unknown"
	}
}
