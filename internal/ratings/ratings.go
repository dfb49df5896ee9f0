// Package ratings provides the student review set and its summary.
package ratings

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Review is one student's rating of a course.
type Review struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Rating  int    `json:"rating" yaml:"rating"`
	Comment string `json:"comment" yaml:"comment"`
	Date    string `json:"date" yaml:"date"`
}

// Reviews returns the review set, newest last.
func Reviews() []Review {
	return []Review{
		{1, "Alice Johnson", 5, "Excellent course! Very detailed and easy to follow. The instructor's teaching style made complex topics simple to understand.", "2 days ago"},
		{2, "Bob Smith", 4, "Really good, but could use more practical examples. The content was valuable but some sections felt rushed.", "1 week ago"},
		{3, "Catherine Lee", 5, "Loved it! The instructor explained concepts very clearly. The projects helped solidify my understanding of the material.", "2 weeks ago"},
		{4, "David Brown", 3, "Average, some topics were rushed. I expected more depth in the advanced sections but overall it was okay.", "3 weeks ago"},
		{5, "Emma Wilson", 4, "Good course with helpful resources. The community support was fantastic and the Q&A section had answers to all my questions.", "1 month ago"},
		{6, "Michael Taylor", 5, "Absolutely worth every penny! Transformed my skills and helped me land a new job. Can't recommend enough!", "1 month ago"},
		{7, "Sophia Martinez", 2, "Expected more advanced content. The beginner sections were good but the course didn't deliver on the advanced topics as promised.", "2 months ago"},
		{8, "James Anderson", 4, "Well-structured content with practical exercises. The instructor was engaging and knowledgeable throughout.", "2 months ago"},
	}
}

// Summary aggregates a review set.
type Summary struct {
	Count int `json:"count" yaml:"count"`
	// Average is rounded to one decimal place; zero for an empty set.
	Average float64 `json:"average" yaml:"average"`
	// Distribution maps a star value 1..5 to its number of reviews.
	Distribution map[int]int `json:"distribution" yaml:"distribution"`
}

// Summarize computes the count, average and star distribution of reviews.
func Summarize(reviews []Review) Summary {
	s := Summary{Count: len(reviews), Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(reviews) == 0 {
		return s
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			s.Distribution[r.Rating]++
		}
	}
	s.Average = math.Round(float64(total)/float64(len(reviews))*10) / 10
	return s
}

// Percent returns the share of reviews with the given star value, rounded
// to a whole percent.
func (s Summary) Percent(stars int) int {
	if s.Count == 0 {
		return 0
	}
	return int(math.Round(float64(s.Distribution[stars]) / float64(s.Count) * 100))
}

// StarFilter selects reviews by rating. Zero keeps every review.
type StarFilter int

// ParseStarFilter accepts "all" or a star value from 1 to 5.
func ParseStarFilter(s string) (StarFilter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("invalid star filter %q: want all or 1-5", s)
	}
	return StarFilter(n), nil
}

// Apply returns the reviews that pass the filter.
func (f StarFilter) Apply(reviews []Review) []Review {
	if f == 0 {
		return slices.Clone(reviews)
	}
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating == int(f) {
			out = append(out, r)
		}
	}
	return out
}

// Order is a review sort order.
type Order string

const (
	Newest  Order = "newest"
	Highest Order = "highest"
	Lowest  Order = "lowest"
)

// ParseOrder accepts newest, highest or lowest.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.TrimSpace(strings.ToLower(s))); o {
	case "":
		return Newest, nil
	case Newest, Highest, Lowest:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order %q: want newest, highest or lowest", s)
	}
}

// Sort returns a sorted copy. Newest puts higher ids first; ties under
// Highest and Lowest keep their input order.
func Sort(reviews []Review, order Order) []Review {
	out := slices.Clone(reviews)
	switch order {
	case Highest:
		slices.SortStableFunc(out, func(a, b Review) int { return b.Rating - a.Rating })
	case Lowest:
		slices.SortStableFunc(out, func(a, b Review) int { return a.Rating - b.Rating })
	default:
		slices.SortStableFunc(out, func(a, b Review) int { return b.ID - a.ID })
	}
	return out
}
