package service

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/ErikKalkoken/hookpost/internal/config"
	"github.com/ErikKalkoken/hookpost/internal/consoletable"
	"github.com/ErikKalkoken/hookpost/internal/storage"
)

// Statistics writes the stats of all webhooks as table.
func (s *Service) Statistics(out io.Writer) error {
	webhooks := slices.Clone(s.cfg.Webhooks)
	slices.SortFunc(webhooks, func(a, b config.ConfigWebhook) int {
		return cmp.Compare(a.Name, b.Name)
	})
	names := make([]string, 0, len(webhooks)+1)
	for _, cw := range webhooks {
		names = append(names, cw.Name)
	}
	names = append(names, storage.AdhocWebhook)
	table := consoletable.New("Webhooks", "Name", "Sent", "Last", "Errors", "History")
	table.Target = out
	for _, name := range names {
		o, err := s.st.GetWebhookStats(name)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		} else if err != nil {
			return err
		}
		table.AddRow(o.Name, o.SentCount, o.SentLast, o.ErrorCount, s.st.SentCount(name))
	}
	table.Print()
	return nil
}

// History writes the latest sent messages of a webhook as table.
func (s *Service) History(out io.Writer, webhookName string, limit int) error {
	if _, ok := s.cfg.Webhook(webhookName); !ok && webhookName != storage.AdhocWebhook {
		return fmt.Errorf("no webhook found with the name %s: %w", webhookName, ErrUnknownWebhook)
	}
	messages, err := s.st.ListSent(webhookName, limit)
	if err != nil {
		return err
	}
	table := consoletable.New("History of "+webhookName, "Sent", "ID", "Thread", "Content", "URL")
	table.Target = out
	for _, m := range messages {
		table.AddRow(m.SentAt, m.ID, m.ThreadName, m.Content, m.URL)
	}
	table.Print()
	return nil
}
