// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

/*
Package models defines the data structures shared across usercenter.

# User Records

User is the persisted record owned by the user store. Tags are kept in their
encoded form (a JSON array of strings) exactly as stored; internal/tags decodes
them on demand. SafeUser is the projection returned to API clients and never
carries the soft-delete flag.

# Updates

UpdateRequest is the wire form of a profile update. Every mutable field is a
pointer so that "absent" and "empty" can be told apart. UserPatch is the
store-level partial update produced from an accepted request; nil fields are
left untouched by the store.

# API Envelopes

APIResponse wraps every HTTP response:

	{
	  "status": "success",
	  "data": [...],
	  "metadata": {"timestamp": "2026-01-02T15:04:05Z", "query_time_ms": 3}
	}
*/
package models
