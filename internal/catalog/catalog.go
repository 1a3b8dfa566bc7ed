// Package catalog loads card templates and prebuilt deck lists from YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cardclash/battle-sim/internal/game/cards"
)

// ErrUnknownTemplate is returned for template ids the catalog does not hold.
var ErrUnknownTemplate = errors.New("unknown card template")

//go:embed starter.yaml
var starterYAML []byte

// File is the top-level YAML structure.
type File struct {
	Cards []cards.Card `yaml:"cards"`
	Decks []Deck       `yaml:"decks"`
}

// Deck is a named deck list with the faction and tactics it is meant for.
type Deck struct {
	Name    string        `yaml:"name"`
	Faction cards.Faction `yaml:"faction"`
	Tactics cards.Tactics `yaml:"tactics"`
	Cards   []Entry       `yaml:"cards"`
}

// Entry is a card and its count in a deck.
type Entry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// Size is the number of cards in the deck.
func (d Deck) Size() int {
	n := 0
	for _, e := range d.Cards {
		n += e.Count
	}
	return n
}

// TemplateIDs expands the deck list in entry order.
func (d Deck) TemplateIDs() []string {
	ids := make([]string, 0, d.Size())
	for _, e := range d.Cards {
		for i := 0; i < e.Count; i++ {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Catalog holds validated card templates and deck lists.
type Catalog struct {
	cards map[string]cards.Card
	order []string
	decks map[string]Deck
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	return New(f)
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Starter returns the built-in catalog.
func Starter() (*Catalog, error) {
	return Parse(starterYAML)
}

// New validates f and indexes it.
func New(f File) (*Catalog, error) {
	c := &Catalog{
		cards: make(map[string]cards.Card, len(f.Cards)),
		decks: make(map[string]Deck, len(f.Decks)),
	}
	for _, card := range f.Cards {
		if err := card.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.cards[card.TemplateID]; dup {
			return nil, fmt.Errorf("duplicate card template %q", card.TemplateID)
		}
		c.cards[card.TemplateID] = card.Clone()
		c.order = append(c.order, card.TemplateID)
	}
	for _, d := range f.Decks {
		if d.Name == "" {
			return nil, errors.New("deck without a name")
		}
		if _, dup := c.decks[d.Name]; dup {
			return nil, fmt.Errorf("duplicate deck %q", d.Name)
		}
		if _, err := cards.ParseFaction(string(d.Faction)); err != nil {
			return nil, fmt.Errorf("deck %s: %w", d.Name, err)
		}
		if _, err := cards.ParseTactics(string(d.Tactics)); err != nil {
			return nil, fmt.Errorf("deck %s: %w", d.Name, err)
		}
		for _, e := range d.Cards {
			if _, ok := c.cards[e.ID]; !ok {
				return nil, fmt.Errorf("deck %s: %w: %q", d.Name, ErrUnknownTemplate, e.ID)
			}
			if e.Count <= 0 {
				return nil, fmt.Errorf("deck %s: card %s has count %d", d.Name, e.ID, e.Count)
			}
		}
		c.decks[d.Name] = d
	}
	return c, nil
}

// Card returns a copy of the template with the given id.
func (c *Catalog) Card(templateID string) (cards.Card, error) {
	card, ok := c.cards[templateID]
	if !ok {
		return cards.Card{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}
	return card.Clone(), nil
}

// Cards lists every template in file order.
func (c *Catalog) Cards() []cards.Card {
	out := make([]cards.Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id].Clone())
	}
	return out
}

// Deck returns the named deck list.
func (c *Catalog) Deck(name string) (Deck, error) {
	d, ok := c.decks[name]
	if !ok {
		return Deck{}, fmt.Errorf("unknown deck %q", name)
	}
	return d, nil
}

// DeckNames lists the decks alphabetically.
func (c *Catalog) DeckNames() []string {
	names := make([]string, 0, len(c.decks))
	for name := range c.decks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns template ids into cards.
func (c *Catalog) Resolve(ids []string) ([]cards.Card, error) {
	out := make([]cards.Card, 0, len(ids))
	for _, id := range ids {
		card, err := c.Card(id)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

// BuildDeck expands the named deck into cards.
func (c *Catalog) BuildDeck(name string) (Deck, []cards.Card, error) {
	d, err := c.Deck(name)
	if err != nil {
		return Deck{}, nil, err
	}
	list, err := c.Resolve(d.TemplateIDs())
	if err != nil {
		return Deck{}, nil, fmt.Errorf("deck %s: %w", name, err)
	}
	return d, list, nil
}
