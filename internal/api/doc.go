// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

/*
Package api exposes the profile service over HTTP using the Chi router.

Routes:

	GET  /api/v1/health/live          liveness
	GET  /api/v1/health/ready         readiness with user counts
	GET  /metrics                     Prometheus exposition
	POST /api/v1/users/update         profile update (rate limited for tags)
	GET  /api/v1/users/match?num=K    top-K users by tag distance
	GET  /api/v1/users/search/tags    users holding any of ?tags=a,b
	GET  /api/v1/users/current        the caller's profile

Every response uses the models.APIResponse envelope. Errors carry the stable
codes from internal/apperrors and the matching HTTP status.
*/
package api
