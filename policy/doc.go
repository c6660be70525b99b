// Package policy maps request paths to the minimum role required to view them.
//
// Roles form a strict ladder ([Ladder]); a [RoutePolicy] holds path-prefix
// rules evaluated on path-segment boundaries with the longest prefix winning.
// Paths with no matching rule only require an authenticated identity.
//
// The decisions made here are coarse routing hints for the edge layer. The
// backend remains the authority for every privileged operation.
package policy
