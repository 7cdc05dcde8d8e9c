package iocache

import (
	"fmt"

	"github.com/huangsam/revscore/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus prints verdict cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format(statusTimeFormat))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeFormat))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintReviewStatus prints review store status information.
func PrintReviewStatus(status schema.ReviewStatus) {
	fmt.Printf("Review Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Comments: %d (%d with a website rating)\n", status.Comments, status.RatedComments)
	fmt.Printf("Feedback Labels: %d\n", status.Feedback)
	if !status.LastComment.IsZero() {
		fmt.Printf("Last Comment: %s\n", status.LastComment.Format(statusTimeFormat))
	}
}

// PrintModelStoreStatus prints model store status information.
func PrintModelStoreStatus(status schema.ModelStoreStatus) {
	fmt.Printf("Model Backend: %s\n", status.Backend)
	fmt.Printf("Location: %s\n", status.Location)
	fmt.Printf("Model: %s\n", status.Name)
	fmt.Printf("Versions: %d\n", len(status.Versions))
	if latest, ok := status.Latest(); ok {
		fmt.Printf("Latest Version: %d (%s, %d bytes)\n", latest.Version, latest.CreatedAt.Format(statusTimeFormat), latest.SizeBytes)
	}
}
