package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/systeminfo"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

const (
	bugReportZipName = "LogFiles"
	systemInfoName   = "systemInfo.txt"
)

// BugReport is a report about a problem, which is posted as new forum thread.
type BugReport struct {
	Title       string
	Description string
	LogFiles    []string
	ImagePath   string
}

// Request returns a copy of base which posts the report.
// The system info is added to the content and as file.
// All files except the image are compressed into one zip file.
func (br BugReport) Request(ctx context.Context, base webhook.Request, info systeminfo.Info) (webhook.Request, error) {
	title := strings.TrimSpace(br.Title)
	if title == "" {
		title = "Bug report"
	}
	sysinfo := info.Markdown()
	content := fmt.Sprintf("# %s\n%s\n%s", title, br.Description, sysinfo)
	r := base.WithThreadName(title).WithContent(content)
	files, err := Attachments(ctx, br.LogFiles...)
	if err != nil {
		return r, err
	}
	si, err := attachment.FromBytes(systemInfoName, []byte(sysinfo))
	if err != nil {
		return r, err
	}
	files = append(files, si)
	r = r.WithAttachments(files...).WithCompressToZip(true, bugReportZipName)
	if br.ImagePath != "" {
		img, err := attachment.FromPath(br.ImagePath)
		if err != nil {
			return r, err
		}
		r = r.WithAttachedImage(img)
	}
	return r, nil
}

// PostBugReport posts a bug report with information about this system to the target.
func (s *Service) PostBugReport(ctx context.Context, t Target, br BugReport) (webhook.Result, error) {
	r, err := br.Request(ctx, t.Request, systeminfo.Collect())
	if err != nil {
		return webhook.Result{}, err
	}
	return s.Execute(ctx, t, r), nil
}
