// Package http provides the chi router, handlers and middleware for the
// room booking API.
//
// Every API route lives under /api/v1:
//   - /auth: register, login, logout, me, forgotpassword and
//     resetpassword/{resettoken}. Successful sign-ins answer
//     {"success":true,"token":...} and set the `token` cookie.
//   - /rooms: public GET for the catalog (select, sort, page, limit and
//     field[op]=value filters) and admin-only POST, PUT and DELETE.
//   - /users: admin-only listing, self-or-admin GET and DELETE.
//   - /reservations: authenticated CRUD plus /active, /user/{userId},
//     /room/{roomId} and, when enabled, the admin-only set-current-date
//     clock override.
//
// /healthz and /metrics sit outside the API prefix. Responses share the
// envelope defined in responder.go; request and response DTOs live next to
// their handlers.
package http
