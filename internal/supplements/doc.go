// Package supplements turns raw supplement sheets into dictionary entries,
// partitions them across domains and merges them into domain dictionaries.
package supplements
