package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"sort"

	"github.com/postbridge/postbridge/internal/client/models"
)

// Post composes a post interactively and publishes it to the selected
// targets. Only the text is required; every other field may be left empty.
// Selecting no targets is valid and results in nothing being published or
// stored.
func (a *App) Post(ctx context.Context) error {
	content, err := GetMultiline(a.reader, "Enter post text", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if content == "" {
		err := errors.New("post text is required")
		log.Printf("error: %v", err)
		return err
	}

	link, err := getSimpleText(a.reader, "Enter link (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	language, err := getSimpleText(a.reader, "Enter language code (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	labels, err := getSimpleText(a.reader, "Enter labels, comma separated (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	images, err := getSimpleText(a.reader, "Enter attachment keys, comma separated (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	thread, err := GetLines(a.reader, "Enter follow-up thread messages, one per line", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	targets, err := getSimpleText(a.reader, "Enter targets, comma separated", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	draft := models.Draft{
		Content:  content,
		Link:     link,
		Labels:   SplitList(labels),
		Language: language,
		Images:   SplitList(images),
		Thread:   thread,
		Targets:  SplitList(targets),
	}

	report, err := a.api.CreatePost(ctx, draft)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	a.printReport(report)
	return nil
}

// printReport renders per-target outcomes in a stable order.
func (a *App) printReport(r *models.PublishReport) {
	if len(r.Results) == 0 {
		printlnFn("No targets selected, nothing was published or stored")
		return
	}

	if r.Failed() {
		printlnFn("Publish finished with failures:", r.Err)
	} else {
		printlnFn("Published:")
	}

	names := make([]string, 0, len(r.Results))
	for name := range r.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := r.Results[name]
		if !res.OK {
			printlnFn("  " + name + ": failed, " + res.Error)
			continue
		}
		line := "  " + name + ": ok"
		if res.URL != "" {
			line += ", " + res.URL
		} else if res.ID != "" {
			line += ", id " + res.ID
		}
		printlnFn(line)
	}
}
