// SPDX-License-Identifier: MPL-2.0

// kitbag is a grab-bag of small file utilities: a file watcher, a JSON
// reformatter, an S3 publish tool, search-and-replace, a source
// snippet extractor and filename renamers.
package main

func main() {
	Execute()
}
