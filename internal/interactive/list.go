package interactive

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/dispatch"
)

type listState int

const (
	awaitingParams listState = iota
	calling
	displaying
	erroring
	itemDetail
	savingToFile
	returnToParent
)

func (s listState) String() string {
	return [...]string{"AwaitingParams", "Calling", "Displaying", "Erroring", "ItemDetail", "SavingToFile", "ReturnToParent"}[s]
}

// summaryKeys pick the column shown for each listed item.
var summaryKeys = []string{"displayName", "name", "id", "inum", "description"}

// listScreen drives a GET-list operation. ReturnToParent and quitting leave
// the screen; every other state ends up back at Displaying.
func (s *Session) listScreen(ctx context.Context, op *catalog.Operation) error {
	var (
		input    dispatch.Input
		items    []any
		selected int
		lastErr  error
		err      error
	)

	state := awaitingParams
	for {
		s.logger.Debug("list screen", "operation", op.ID, "state", state)
		switch state {
		case awaitingParams:
			input, err = s.collectParams(op)
			if err != nil {
				return err
			}
			state = calling

		case calling:
			res, err := s.dispatcher.Invoke(ctx, op, input)
			switch {
			case err != nil:
				lastErr, state = err, erroring
			case res.NotFound:
				lastErr, state = fmt.Errorf("%s: not found", op.ID), erroring
			default:
				items, state = asList(res.Data), displaying
			}

		case displaying:
			s.showItems(items)
			answer, err := s.term.ReadLine("Item number for details, s=save, p=parameters, r=refresh, b=back, q=quit: ")
			if err != nil {
				return err
			}
			switch answer = strings.ToLower(strings.TrimSpace(answer)); answer {
			case "s":
				state = savingToFile
			case "p":
				state = awaitingParams
			case "r":
				state = calling
			case "b", "":
				state = returnToParent
			case "q":
				return ErrQuit
			default:
				n, convErr := strconv.Atoi(answer)
				if convErr != nil || n < 1 || n > len(items) {
					s.term.Report(fmt.Errorf("%q is not a valid choice", answer))
					continue
				}
				selected, state = n-1, itemDetail
			}

		case erroring:
			s.printer.PrintError(lastErr)
			answer, err := s.term.ReadLine("r=retry, p=parameters, b=back: ")
			if err != nil {
				return err
			}
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "r":
				state = calling
			case "p":
				state = awaitingParams
			default:
				state = returnToParent
			}

		case itemDetail:
			if err := s.printer.PrintJSON(items[selected]); err != nil {
				return err
			}
			state = displaying

		case savingToFile:
			if err := s.save(items); err != nil {
				s.term.Report(err)
			}
			state = displaying

		case returnToParent:
			return nil
		}
	}
}

func (s *Session) showItems(items []any) {
	if len(items) == 0 {
		s.term.Println("No items.")
		return
	}
	for i, item := range items {
		s.term.Println(fmt.Sprintf("%3d) %s", i+1, summarize(item)))
	}
}

func (s *Session) save(items []any) error {
	path, err := s.term.ReadLine("File name: ")
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("no file name given")
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	s.term.Println(fmt.Sprintf("Saved %d items to %s", len(items), path))
	return nil
}

func asList(data any) []any {
	switch t := data.(type) {
	case nil:
		return nil
	case []any:
		return t
	case map[string]any:
		// Paged responses wrap the items.
		for _, key := range []string{"entries", "data", "items", "Resources"} {
			if list, ok := t[key].([]any); ok {
				return list
			}
		}
	}
	return []any{data}
}

func summarize(item any) string {
	if m, ok := item.(map[string]any); ok {
		var parts []string
		for _, key := range summaryKeys {
			if v, ok := m[key]; ok && v != nil && v != "" {
				parts = append(parts, fmt.Sprint(v))
			}
			if len(parts) == 2 {
				break
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "  ")
		}
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprint(item)
	}
	const limit = 70
	if r := []rune(string(data)); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return string(data)
}
