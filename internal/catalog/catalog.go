// Package catalog holds the bookable services and time slots offered by the
// clinic.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
)

type Service struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Slot struct {
	ID    clinic.TimeSlot `json:"id"`
	Label string          `json:"label"`
}

type File struct {
	Services  []Service `json:"services"`
	TimeSlots []Slot    `json:"time_slots"`
}

var defaultServices = []Service{
	{ID: "prosthetic_limbs", Label: "Prosthetic Limbs"},
	{ID: "orthotic_insoles", Label: "Orthotic Insoles"},
	{ID: "orthopedic_footwear", Label: "Orthopedic Footwear"},
	{ID: "corrective_shoes", Label: "Corrective Shoes"},
	{ID: "diabetic_footwear", Label: "Diabetic Footwear"},
	{ID: "custom_braces", Label: "Custom Braces"},
}

var defaultSlots = []Slot{
	{ID: clinic.SlotMorning, Label: "Morning (9AM - 12PM)"},
	{ID: clinic.SlotAfternoon, Label: "Afternoon (12PM - 3PM)"},
	{ID: clinic.SlotEvening, Label: "Evening (3PM - 6PM)"},
}

type Catalog struct {
	mu       sync.RWMutex
	services map[string]*Service
	order    []string
	slots    []Slot
}

func New() *Catalog {
	return &Catalog{services: make(map[string]*Service)}
}

// Default returns the clinic's built-in offering.
func Default() *Catalog {
	c := New()
	for i := range defaultServices {
		svc := defaultServices[i]
		c.Register(&svc)
	}
	c.SetSlots(defaultSlots)
	return c
}

// LoadFromFile reads a catalog JSON file. An empty path yields Default.
// Sections missing from the file keep their defaults.
func LoadFromFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(file.Services) == 0 {
		file.Services = append([]Service(nil), defaultServices...)
	}
	if len(file.TimeSlots) == 0 {
		file.TimeSlots = defaultSlots
	}

	c := New()
	for i := range file.Services {
		if file.Services[i].ID == "" {
			return nil, fmt.Errorf("catalog service %d has no id", i)
		}
		c.Register(&file.Services[i])
	}
	c.SetSlots(file.TimeSlots)
	return c, nil
}

func (c *Catalog) Register(svc *Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.services[svc.ID]; !ok {
		c.order = append(c.order, svc.ID)
	}
	c.services[svc.ID] = svc
}

func (c *Catalog) SetSlots(slots []Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = append([]Slot(nil), slots...)
}

func (c *Catalog) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[id]
	return ok
}

// Label maps a service id to its display label. Unknown ids pass through.
func (c *Catalog) Label(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if svc, ok := c.services[id]; ok && svc.Label != "" {
		return svc.Label
	}
	return id
}

func (c *Catalog) Services() []Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Service, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.services[id])
	}
	return out
}

func (c *Catalog) TimeSlots() []Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Slot(nil), c.slots...)
}

func (c *Catalog) ValidSlot(slot clinic.TimeSlot) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.slots {
		if s.ID == slot {
			return true
		}
	}
	return false
}
