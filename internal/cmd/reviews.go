package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/output"
	"github.com/dhanwis/tutoradmin/internal/ratings"
	"github.com/dhanwis/tutoradmin/internal/util"
)

func registerReviewsCmd(parent *cobra.Command) {
	var stars, sortOrder string

	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Show course reviews and the rating summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviews(cmd, stars, sortOrder)
		},
	}
	reviewsCmd.Flags().StringVar(&stars, "stars", "all", "only show reviews with this many stars (1-5 or all)")
	reviewsCmd.Flags().StringVar(&sortOrder, "sort", string(ratings.Newest), "newest, highest or lowest")

	parent.AddCommand(reviewsCmd)
}

// reviewsDocument is the JSON and YAML form of the reviews view.
type reviewsDocument struct {
	Summary ratings.Summary  `json:"summary" yaml:"summary"`
	Reviews []ratings.Review `json:"reviews" yaml:"reviews"`
}

func runReviews(cmd *cobra.Command, stars, sortOrder string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	filter, err := ratings.ParseStarFilter(stars)
	if err != nil {
		return e.fail("show reviews", errors.NewValidationError(err.Error()).WithField("stars"))
	}
	order, err := ratings.ParseOrder(sortOrder)
	if err != nil {
		return e.fail("show reviews", errors.NewValidationError(err.Error()).WithField("sort"))
	}

	all := ratings.Reviews()
	summary := ratings.Summarize(all)
	shown := ratings.Sort(filter.Apply(all), order)

	if e.printer.Format() != output.FormatTable {
		return e.printer.Print(reviewsDocument{Summary: summary, Reviews: shown}, output.Rows{}, "")
	}

	e.printer.Heading(fmt.Sprintf("Average rating %.1f from %d reviews", summary.Average, summary.Count))
	dist := output.Rows{Headers: []string{"Stars", "Reviews", "Share"}}
	for s := 5; s >= 1; s-- {
		dist.Add(starBar(s), fmt.Sprint(summary.Distribution[s]), fmt.Sprintf("%d%%", summary.Percent(s)))
	}
	if err := e.printer.Print(summary, dist, ""); err != nil {
		return err
	}

	rows := output.Rows{Headers: []string{"", "Name", "Rating", "Date", "Comment"}}
	for _, r := range shown {
		rows.Add(util.Initials(r.Name), r.Name, starBar(r.Rating), r.Date, r.Comment)
	}
	return e.printer.Print(shown, rows, "No reviews match the filter.")
}

// starBar renders a rating as five filled or empty stars.
func starBar(rating int) string {
	rating = max(0, min(5, rating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
