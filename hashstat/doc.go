package hashstat

/*

# hashstat: k-mer frequency statistics for read pools

A pass over a read pool builds an Index: one HashRecord per distinct k-mer with
its occurrence count, the lowest position it was seen at, the lowest sequencing
technology that produced it and a set of flags (seen and confirmed in each
orientation, seen by several technologies, branch).

## Building

Builder is exact. Every window of every read becomes a single occurrence
record, routed to a bucket by its leading bases. A full bucket buffer is
pre-compacted and appended to that bucket's spill file (optionally as a zstd
frame). The buckets are finally compacted in parallel and concatenated.

Spill pre-compaction keeps forward only and reverse only records apart and
always keeps singletons, so the final merge sees exact per orientation counts
and the result is identical to an in-memory build.

BloomBuilder trades accuracy or time for memory; see BloomMode.

## Querying

Records are sorted by (key & prefix mask, key). A shortcut table maps each key
prefix to a Range of records, so a lookup is a table access followed by a short
linear scan or a binary search. A key absent from the index stands for a
single, unconfirmed occurrence.

	+-------------------+  starts[p]      records with key & mask == p
	| prefix p records  |
	+-------------------+  starts[p+1]
	| prefix p+1 ...    |

Insert makes the table stale; lookups panic until Rebuild.

## Passes

EstimateFrequency computes the typical k-mer coverage, DeriveThresholds turns it
into category boundaries, and an Annotator writes per base categories onto
reads. DetectBranches, Normalizer and BaitScreener are the other consumers.
RunPass strings the common sequence together.

All state lives in a BuildContext; nothing is process global.

*/
