// Package directory provides a small net/http handler that answers username
// lookups with a JSON array of matching users, in the shape the directory
// client expects. It lets a local user store stand in for a remote
// directory service.
//
// The default handler responds to GET and HEAD requests on /api/users and
// reads the username from the "username" query parameter.
package directory
