// Package serialization saves and loads parameter checkpoints.
//
// A checkpoint stores leaf values only, never graph topology. The file
// layout is:
//
//	Format Structure:
//	  [4 bytes: Magic "LZGD"]
//	  [Body: protobuf wire-format Checkpoint message]
//	  [32 bytes: SHA-256 of magic + body]
//
// The body message uses these fields:
//
//	Checkpoint {
//	  1: version   (varint)
//	  2: producer  (string)
//	  3: tensors   (repeated Tensor)
//	}
//	Tensor {      // field numbers follow ONNX TensorProto
//	  1: dims      (packed int64)
//	  2: data_type (int32, always 1 = FLOAT)
//	  4: float_data (packed float)
//	  8: name      (string)
//	}
//
// Parameters are stored in model order under "<index>.<name>", for example
// "0.weight", "0.bias", "1.weight". Optimizer state entries are stored
// after the parameters under "optim.<key>".
//
// Example usage:
//
//	// Save a model
//	f, _ := os.Create("model.lzgd")
//	if err := serialization.Save(f, model.Parameters()); err != nil {
//	    log.Fatal(err)
//	}
//	f.Close()
//
//	// Load into a model with the same architecture
//	f, _ = os.Open("model.lzgd")
//	if err := serialization.Load(f, model.Parameters()); err != nil {
//	    log.Fatal(err)
//	}
package serialization
