package store

import "go.mongodb.org/mongo-driver/bson"

// Query-to-filter translation lives here as pure functions so the shapes
// can be tested without a database.

// kudosFilter builds the find filter for the kudos feed. Before is an
// exclusive createdAt cursor; RFC 3339 strings compare correctly as
// strings so $lt works without date coercion.
func kudosFilter(q KudosQuery) bson.M {
	filter := bson.M{}
	if q.Before != "" {
		filter["createdAt"] = bson.M{"$lt": q.Before}
	}
	if q.ToUserID != "" {
		filter["toUserId"] = q.ToUserID
	}
	return filter
}

// bountyFilter builds the find filter for the bounty board. An invalid
// status is ignored rather than rejected; the board shows everything.
func bountyFilter(q BountyQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" && ValidBountyStatus(q.Status) {
		filter["status"] = q.Status
	}
	return filter
}

// eventFilter builds the find filter for calendar events. A date range
// matches any overlapping event: ones starting in the range, ending in
// the range, or spanning it entirely.
func eventFilter(q EventQuery) bson.M {
	filter := bson.M{}
	if q.StartDate != "" && q.EndDate != "" {
		filter["$or"] = bson.A{
			bson.M{"startDate": bson.M{"$gte": q.StartDate, "$lte": q.EndDate}},
			bson.M{"endDate": bson.M{"$gte": q.StartDate, "$lte": q.EndDate}},
			bson.M{"startDate": bson.M{"$lte": q.StartDate}, "endDate": bson.M{"$gte": q.EndDate}},
		}
	}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}
	return filter
}

// feedbackFilter builds the find filter for the feedback list.
func feedbackFilter(q FeedbackQuery) bson.M {
	filter := bson.M{}
	if q.Username != "" {
		filter["username"] = q.Username
	}
	if len(q.Categories) > 0 {
		filter["categories"] = bson.M{"$in": q.Categories}
	}
	return filter
}
