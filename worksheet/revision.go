package worksheet

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/drive/v3"
)

type Version struct {
	Revision string
	Modified time.Time
}

// LatestRevision returns the most recently modified revision of a Drive file.
func LatestRevision(ctx context.Context, gdrive *drive.Service, fileId string) (*Version, error) {
	page := ""
	latest := Version{
		Revision: "",
		Modified: time.Time{},
	}

	for {
		call := drive.NewRevisionsService(gdrive).List(fileId).Fields("nextPageToken", "revisions(id,modifiedTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, err
		}

		for _, revision := range revisions.Revisions {
			datetime, err := time.Parse(time.RFC3339, revision.ModifiedTime)
			if err != nil {
				return nil, err
			}

			if latest.Modified.Before(datetime) {
				latest.Revision = revision.Id
				latest.Modified = datetime
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.Modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for file ID %s", fileId)
	}

	return &latest, nil
}
