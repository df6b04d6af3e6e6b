// Package ingest keeps the most recent raw payload per input modality.
package ingest

import (
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "ingest"

// Ingestor is a pure accumulator: it stores payloads and never interprets them.
type Ingestor struct {
	slots map[perception.Modality]string
}

func New() *Ingestor {
	return &Ingestor{slots: make(map[perception.Modality]string, len(perception.Modalities))}
}

// Ingest stores payload for modality, replacing only that modality's previous value.
func (i *Ingestor) Ingest(modality perception.Modality, payload string) error {
	if !modality.Valid() {
		return perrors.Errorf(perrors.KindUnsupportedModality, component, "ingest", "modality %q", modality)
	}
	i.slots[modality] = payload
	return nil
}

// Latest returns the last payload stored for modality.
func (i *Ingestor) Latest(modality perception.Modality) (string, bool) {
	payload, ok := i.slots[modality]
	return payload, ok
}

// Snapshot returns the current payloads. Modalities never ingested are omitted.
func (i *Ingestor) Snapshot() perception.ModalitySnapshot {
	var snap perception.ModalitySnapshot
	for _, m := range perception.Modalities {
		payload, ok := i.slots[m]
		if !ok {
			continue
		}
		value := payload
		switch m {
		case perception.Text:
			snap.Text = &value
		case perception.Voice:
			snap.Voice = &value
		case perception.Visual:
			snap.Visual = &value
		}
	}
	return snap
}

// Restore replaces every slot with the contents of snap.
func (i *Ingestor) Restore(snap perception.ModalitySnapshot) {
	slots := make(map[perception.Modality]string, len(perception.Modalities))
	for _, m := range perception.Modalities {
		if payload, ok := snap.Get(m); ok {
			slots[m] = payload
		}
	}
	i.slots = slots
}
