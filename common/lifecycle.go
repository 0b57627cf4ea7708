/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

// Destroyable is the liveness/teardown contract every Invoker and
// long-lived extension instance carries, mirrored on Motan's Destroyable
// (other_examples' motan-go core.go) and dubbo-go's common.Node.
type Destroyable interface {
	// IsAvailable reports whether this instance may still be used.
	IsAvailable() bool
	// Destroy releases any resource this instance holds; implementations
	// must be safe to call more than once.
	Destroy()
}
