package cli

import (
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/rescale-browse/internal/collection"
	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/dispatch"
	"github.com/rescale/rescale-browse/internal/events"
	"github.com/rescale/rescale-browse/internal/models"
	"github.com/rescale/rescale-browse/internal/progress"
	"github.com/rescale/rescale-browse/internal/state"
	"github.com/rescale/rescale-browse/internal/util/filter"
	ustrings "github.com/rescale/rescale-browse/internal/util/strings"
)

// listing is one browse request: where items come from and what to call them.
type listing struct {
	source   string // models.Source*
	folderID string
	path     string // Human-readable location, shown while loading
	items    iter.Seq2[models.FileItem, error]
}

// runListing loads l into a file list on its own dispatch loop and prints the
// result. Items received before an error or an interrupt are still printed.
func runListing(cmd *cobra.Command, l listing) error {
	log := GetLogger()
	cfg := getConfig()

	loop := dispatch.NewLoop(log.Component("dispatch"))
	loop.Start()
	defer loop.Stop()

	opts := []collection.Option{collection.WithSettings(cfg.Collection)}
	if verbose {
		opts = append(opts, collection.WithLogger(log.Component("collection")))
	}

	var bus *events.EventBus
	printed := make(chan struct{})
	if showEvents {
		bus = events.NewEventBus(constants.EventBusMaxBuffer)
		ch := bus.SubscribeAll()
		go func() {
			defer close(printed)
			for ev := range ch {
				fmt.Fprintln(cmd.ErrOrStderr(), formatEvent(ev))
			}
		}()
	} else {
		close(printed)
	}

	mgr := state.NewManager(loop, bus, opts...)
	list, err := mgr.State(l.source)
	if err != nil {
		return err
	}
	if err := list.SetSort(sortBy, !descending); err != nil {
		return err
	}
	list.SetCurrentFolder(l.folderID, l.path)

	reporter := progress.NewReporter(os.Stderr)
	reporter.Start("Listing " + l.path)
	unsubscribe := list.Subscribe(reporter.Observe)

	res, loadErr := list.Load(cmd.Context(), filter.Seq(l.items, filterConfig()))

	unsubscribe()
	reporter.Finish()

	// Everything posted during the load is delivered before the bus closes.
	loop.Stop()
	if bus != nil {
		bus.Close()
		<-printed
		if dropped := bus.GetDroppedEventCount(); dropped > 0 {
			log.Warn().Int64("dropped", dropped).Msg("Event printer fell behind")
		}
	}

	if err := writeTable(cmd.OutOrStdout(), list.Items()); err != nil {
		return err
	}

	summary := fmt.Sprintf("%s in %s", ustrings.Count(int64(res.Added), "item"), res.Duration.Round(time.Millisecond))
	if res.Cancelled {
		summary += " (interrupted)"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summary)

	log.Debug().
		Str("run_id", res.RunID).
		Int("flushes", res.StructuralFlushes).
		Int("count_flushes", res.CountFlushes).
		Msg("Listing complete")

	if loadErr != nil {
		return fmt.Errorf("listing %s: %w", l.path, loadErr)
	}
	return nil
}

// filterConfig builds the listing filter from the --include, --exclude,
// --search and --match flags. Folders are only subject to --match.
func filterConfig() filter.Config {
	return filter.Config{
		Include:     filter.ParsePatternList(includeFlag),
		Exclude:     filter.ParsePatternList(excludeFlag),
		Search:      searchFlag,
		PathInclude: filter.ParsePatternList(matchFlag),
	}
}
