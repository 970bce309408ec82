package aggregate

import (
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
)

// Bucket is one bar or slice of a dashboard chart.
type Bucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// WeeklyDistribution counts appointments per weekday of their calendar
// date. All seven buckets are always present, Sunday first. Dates that do
// not parse are skipped.
func WeeklyDistribution(appts []clinic.Appointment) []Bucket {
	buckets := make([]Bucket, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		buckets[d].Name = d.String()
	}
	for _, appt := range appts {
		day, ok := appt.Day(time.UTC)
		if !ok {
			continue
		}
		buckets[day.Weekday()].Value++
	}
	return buckets
}

// ServiceDistribution counts appointments per service label in the order
// each label is first seen.
func ServiceDistribution(appts []clinic.Appointment, label func(string) string) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, appt := range appts {
		name := label(appt.Service)
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, Bucket{Name: name})
		}
		buckets[i].Value++
	}
	if buckets == nil {
		buckets = []Bucket{}
	}
	return buckets
}
