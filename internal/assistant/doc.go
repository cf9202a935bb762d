// Package assistant composes the natural-language resolvers, the
// availability planner and a calendar gateway into the operations exposed
// as tools. Every operation returns human readable text.
//
// A Service is cheap to build and is created per tool invocation.
package assistant
