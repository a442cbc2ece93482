// Package services contains the application services of the taskdesk
// client: the task list query controller and the admin panel service.
//
// Both are safe for concurrent use. TaskList applies fetch results in
// request-issuance order: every fetch takes a sequence number before it is
// sent and its result is applied only if no newer fetch has been issued
// since.
package services
