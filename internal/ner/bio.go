package ner

import "strings"

// mapLabel converts CoNLL entity types to the labels Suggest understands.
func mapLabel(kind string) string {
	switch strings.ToUpper(kind) {
	case "PER", "PERSON":
		return LabelPerson
	case "ORG":
		return LabelOrg
	case "LOC", "GPE":
		return LabelGPE
	default:
		return strings.ToUpper(kind)
	}
}

// decodeBIO turns per-token label ids into entity spans over text. Only the
// first piece of each word carries a prediction; "##" pieces extend the open
// entity.
func decodeBIO(text string, windows []Window, predictions [][]int, labels []string) []Entity {
	var (
		entities []Entity
		open     *Entity
		openKind string
	)

	closeOpen := func() {
		if open != nil {
			open.Text = text[open.Start:open.End]
			entities = append(entities, *open)
			open = nil
			openKind = ""
		}
	}

	for wi, w := range windows {
		if wi >= len(predictions) {
			break
		}
		preds := predictions[wi]
		for i, tok := range w.Tokens {
			if tok.Word < 0 || i >= len(preds) {
				continue
			}
			if tok.Continuation {
				if open != nil && tok.End > open.End {
					open.End = tok.End
				}
				continue
			}

			label := "O"
			if id := preds[i]; id >= 0 && id < len(labels) {
				label = labels[id]
			}

			prefix, kind, hasKind := strings.Cut(label, "-")
			if !hasKind {
				closeOpen()
				continue
			}

			if prefix == "I" && open != nil && openKind == kind {
				open.End = tok.End
				continue
			}

			closeOpen()
			open = &Entity{Label: mapLabel(kind), Start: tok.Start, End: tok.End}
			openKind = kind
		}
	}
	closeOpen()

	return entities
}
