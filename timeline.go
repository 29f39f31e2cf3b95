package docsession

// TimelineDiagnostics counts anomalies observed while building a timeline.
// DanglingRefs is the number of comment IDs that matched no fetched comment;
// whether those are legitimately filtered orphans or an upstream integrity
// problem is undecided, so they are counted rather than silently discarded.
type TimelineDiagnostics struct {
	DanglingRefs int
}

// BuildTimeline merges the fetched revisions and comments into one ordered
// timeline. See [BuildTimelineDiagnostics].
func BuildTimeline(revisions []Revision, comments []Comment) Timeline {
	tl, _ := BuildTimelineDiagnostics(revisions, comments)
	return tl
}

// BuildTimelineDiagnostics merges revisions and comments into a timeline and
// reports anomalies encountered along the way.
//
// Each revision is assigned its fetch-order number (index+1) and its
// CommentIDs are resolved against the comment list by identity. The output
// emits every revision entry followed immediately by its resolved comments;
// revisions keep fetch order, there is no global re-sort by timestamp.
// Comments whose ID appears in no revision are absent from the result.
func BuildTimelineDiagnostics(revisions []Revision, comments []Comment) (Timeline, TimelineDiagnostics) {
	byID := make(map[int]Comment, len(comments))
	for _, c := range comments {
		byID[c.ContentID] = c
	}

	var diag TimelineDiagnostics
	tl := make(Timeline, 0, len(revisions)+len(comments))

	for i := range revisions {
		rev := revisions[i]
		rev.Number = i + 1

		resolved := make([]Comment, 0, len(rev.CommentIDs))
		for _, id := range rev.CommentIDs {
			c, ok := byID[id]
			if !ok {
				diag.DanglingRefs++
				continue
			}
			resolved = append(resolved, c)
		}

		tl = append(tl, TimelineEntry{
			Kind:        EntryRevision,
			Revision:    &rev,
			CommentList: resolved,
		})
		for j := range resolved {
			tl = append(tl, TimelineEntry{
				Kind:    EntryComment,
				Comment: &resolved[j],
			})
		}
	}

	return tl, diag
}
