// Package alerts evaluates threshold rules against live metric fields and
// equipment status, and delivers webhook notifications to Slack, Teams or
// generic HTTP targets when a rule fires or resolves.
//
// A rule condition has the form "field op value", for example
// "temperature > 80" or "status == ALARM". Alerts are keyed by rule name and
// resource key, so the same rule fires independently per machine.
package alerts
