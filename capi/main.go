// Command capi builds the tagger as a C shared library:
//
//	go build -buildmode=c-shared -o libpostagger.so ./capi
//
// Results returned by tagger_annotate and tagger_annotate_json belong to the
// caller and must be released with tagger_results_release and
// tagger_string_release.
package main

/*
#include <stdlib.h>

typedef struct {
	char *word;
	char *tag;
	double conf;
} CTag;

typedef struct {
	CTag *tags;
	size_t num_tags;
} TagResults;
*/
import "C"

import (
	"unsafe"

	"text2phenotype.com/postagger/binding"
	"text2phenotype.com/postagger/logger"
)

var capiLogger = logger.NewLogger("CAPI")

// tagger_create returns 0 when the tagger could not be loaded.
//
//export tagger_create
func tagger_create(weights, classes, exceptions *C.char) C.ulonglong {
	h, err := binding.Create(C.GoString(weights), C.GoString(classes), C.GoString(exceptions))
	if err != nil {
		capiLogger.Err(err).Msg("Could not create tagger")
		return 0
	}
	return C.ulonglong(h)
}

// tagger_annotate returns NULL for an unknown handle.
//
//export tagger_annotate
func tagger_annotate(h C.ulonglong, sentence *C.char) *C.TagResults {
	tokens, err := binding.Annotate(binding.Handle(h), C.GoString(sentence))
	if err != nil {
		capiLogger.Err(err).Uint64("handle", uint64(h)).Msg("Could not annotate sentence")
		return nil
	}

	results := (*C.TagResults)(C.malloc(C.size_t(unsafe.Sizeof(C.TagResults{}))))
	results.tags = nil
	results.num_tags = C.size_t(len(tokens))
	if len(tokens) == 0 {
		return results
	}

	results.tags = (*C.CTag)(C.malloc(C.size_t(len(tokens)) * C.size_t(unsafe.Sizeof(C.CTag{}))))
	tags := unsafe.Slice(results.tags, len(tokens))
	for i, token := range tokens {
		tags[i].word = C.CString(token.Word)
		tags[i].tag = C.CString(token.Tag)
		tags[i].conf = C.double(token.Confidence)
	}
	return results
}

// tagger_annotate_json returns NULL for an unknown handle.
//
//export tagger_annotate_json
func tagger_annotate_json(h C.ulonglong, sentence *C.char) *C.char {
	js, err := binding.AnnotateJSON(binding.Handle(h), C.GoString(sentence))
	if err != nil {
		capiLogger.Err(err).Uint64("handle", uint64(h)).Msg("Could not annotate sentence")
		return nil
	}
	return C.CString(js)
}

//export tagger_results_release
func tagger_results_release(results *C.TagResults) {
	if results == nil {
		return
	}
	if results.tags != nil {
		for _, tag := range unsafe.Slice(results.tags, int(results.num_tags)) {
			C.free(unsafe.Pointer(tag.word))
			C.free(unsafe.Pointer(tag.tag))
		}
		C.free(unsafe.Pointer(results.tags))
	}
	C.free(unsafe.Pointer(results))
}

//export tagger_string_release
func tagger_string_release(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// tagger_release returns -1 for an unknown or already released handle.
//
//export tagger_release
func tagger_release(h C.ulonglong) C.int {
	if err := binding.Release(binding.Handle(h)); err != nil {
		capiLogger.Err(err).Uint64("handle", uint64(h)).Msg("Could not release tagger")
		return -1
	}
	return 0
}

func main() {}
