package hydrate

import (
	"context"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/gallery"
)

// Source answers the two discovery questions the pipeline asks.
type Source interface {
	// First resolves index 1 only.
	First(ctx context.Context, card Card) (discovery.Pair, bool)
	// All resolves every entry of the card's folder.
	All(ctx context.Context, card Card) []discovery.Pair
}

// DiscovererSource answers directly from a Discoverer.
type DiscovererSource struct {
	Discoverer *discovery.Discoverer
}

// First implements Source.
func (s DiscovererSource) First(ctx context.Context, card Card) (discovery.Pair, bool) {
	if card.Pairs {
		return s.Discoverer.ResolvePair(ctx, card.Folder, 1)
	}
	ref, ok := s.Discoverer.FindFirst(ctx, card.Folder)
	return discovery.Single(ref), ok
}

// All implements Source.
func (s DiscovererSource) All(ctx context.Context, card Card) []discovery.Pair {
	if card.Pairs {
		return s.Discoverer.DiscoverPairs(ctx, card.Folder, card.Count)
	}
	return discovery.Singles(s.Discoverer.Discover(ctx, card.Folder, card.Count))
}

// Mount builds the card's controller around list. It returns nil when the
// card can no longer be mounted.
type Mount func(card Card, list *gallery.List) *gallery.MiniGallery

// Progressive returns the hydration pipeline: paint the first asset as soon
// as it is known, then swap in the full list. A folder without a first
// asset is left unmounted.
func Progressive(src Source, mount Mount, log discovery.Logger) HydrateFunc {
	if log == nil {
		log = discovery.Nop()
	}
	return func(ctx context.Context, card Card) {
		first, ok := src.First(ctx, card)
		if !ok {
			log.Debugf("hydrate: %s: no first asset, leaving card as is", card.Folder)
			return
		}
		var list *gallery.List
		if card.Pairs {
			list = gallery.NewPairList(first)
		} else {
			list = gallery.NewList(first.Low)
		}
		g := mount(card, list)
		if g == nil {
			return
		}
		all := src.All(ctx, card)
		if len(all) == 0 {
			return
		}
		if card.Pairs {
			g.ReplacePairs(all)
			return
		}
		refs := make([]discovery.AssetRef, len(all))
		for i, p := range all {
			refs[i] = p.Low
		}
		g.ReplaceImages(refs)
	}
}
